package main

import "github.com/gaurav-prasanna/biocpipe/cmd"

func main() {
	cmd.Execute()
}
