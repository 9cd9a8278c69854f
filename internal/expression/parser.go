package expression

// ToRPN converts an infix token sequence into reverse Polish notation using
// the shunting-yard algorithm. Parentheses and commas never reach the output.
func ToRPN(tokens []Token) ([]Token, error) {
	output := make([]Token, 0, len(tokens))
	stack := make([]Token, 0, len(tokens)/2+1)

	top := func() Token { return stack[len(stack)-1] }
	pop := func() Token {
		tok := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return tok
	}

	for _, tok := range tokens {
		switch {
		case tok.Type == TokenNumber:
			output = append(output, tok)

		case tok.IsFunction():
			stack = append(stack, tok)

		case tok.Type == TokenComma:
			for len(stack) > 0 && top().Type != TokenLeftParen {
				output = append(output, pop())
			}
			if len(stack) == 0 {
				return nil, &ExpressionError{Kind: KindMismatchedParentheses, Position: tok.Pos, Message: "argument separator outside of parentheses"}
			}

		case tok.IsOperator():
			for len(stack) > 0 && top().Type != TokenLeftParen && yields(top(), tok) {
				output = append(output, pop())
			}
			stack = append(stack, tok)

		case tok.Type == TokenLeftParen:
			stack = append(stack, tok)

		case tok.Type == TokenRightParen:
			for len(stack) > 0 && top().Type != TokenLeftParen {
				output = append(output, pop())
			}
			if len(stack) == 0 {
				return nil, &ExpressionError{Kind: KindMisplacedParenthesisOrArgumentSeparator, Position: tok.Pos}
			}
			pop()

		default:
			return nil, &ExpressionError{
				Kind:     KindInvalidTokenType,
				Position: tok.Pos,
				Expected: "operand, operator, function or parenthesis",
				Actual:   tok.Type.String(),
			}
		}
	}

	for len(stack) > 0 {
		tok := pop()
		if tok.IsParenthesis() {
			return nil, &ExpressionError{Kind: KindMismatchedParentheses, Position: tok.Pos}
		}
		output = append(output, tok)
	}

	return output, nil
}

// yields reports whether the stacked token must be emitted before current is pushed.
func yields(stacked, current Token) bool {
	if stacked.IsFunction() {
		return true
	}
	if !stacked.IsOperator() {
		return false
	}
	if stacked.Precedence() > current.Precedence() {
		return true
	}
	return stacked.Precedence() == current.Precedence() && stacked.Associativity() == AssocLeftToRight
}
