/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/cmd"

func main() {
	cmd.Execute()
}
