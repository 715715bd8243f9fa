package main

import "github.com/oshokin/aur-autoupdater/cmd/aur-autoupdater/cmd"

func main() {
	cmd.Execute()
}
