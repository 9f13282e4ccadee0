package main

import "github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/cli"

func main() {
	cli.Execute()
}
