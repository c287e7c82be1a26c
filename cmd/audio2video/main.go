package main

import "github.com/ershuai-acc/audio2video/internal/cli"

func main() {
	cli.Main()
}
