package main

import "github.com/Alijeyrad/medcenter_backend/cmd"

func main() {
	cmd.Execute()
}
