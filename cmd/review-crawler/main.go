package main

import cmd "github.com/rohmanhakim/review-crawler/internal/cli"

func main() {
	cmd.Execute()
}
