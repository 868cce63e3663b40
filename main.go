package main

import "github.com/BollineniRohith123/nibog-platform/cmd"

func main() {
	cmd.Execute()
}
