// Command rpncalc evaluates arithmetic and dice expressions.
package main

import "github.com/tariel36/rpncalc/cmd"

func main() {
	cmd.Execute()
}
