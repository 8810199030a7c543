/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/janj3143/careertrojan-bridge/cmd"

func main() {
	cmd.Execute()
}
