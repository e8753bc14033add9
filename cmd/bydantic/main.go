package main

import (
	"github.com/khusmann/bydantic/cmd/bydantic/cmd"
)

func main() {
	cmd.Execute()
}
