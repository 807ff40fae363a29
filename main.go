package main

import "github.com/inovacc/gerritconn/cmd"

func main() {
	cmd.Execute()
}
