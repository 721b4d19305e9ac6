package main

import "github.com/MeKo-Tech/placa/cmd/placa/cmd"

func main() {
	cmd.Execute()
}
