package main

import "github.com/theirongolddev/larder/cmd"

func main() {
	cmd.Execute()
}
