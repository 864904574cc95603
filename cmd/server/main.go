package main

import "github.com/mrhollen/knowledgebase/internal/cli"

func main() {
	cli.Execute()
}
