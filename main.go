package main

import "github.com/vibast-solutions/ms-go-dagpay/cmd"

func main() {
	cmd.Execute()
}
