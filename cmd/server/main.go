package main

import "dryfruit_store/internal/cmd"

func main() {
	cmd.Execute()
}
