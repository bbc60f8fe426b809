package main

import "kirk-crawl/cmd"

func main() {
	cmd.Execute()
}
