package main

import "github.com/Manu343726/chip8/cmd"

func main() {
	cmd.Execute()
}
