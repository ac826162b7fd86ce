package main

import "github.com/chrisdamba/tillmetrics/cmd"

func main() {
	cmd.Execute()
}
