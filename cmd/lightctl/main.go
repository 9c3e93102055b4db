// Package main is the entry point for lightctl, the StageLights CLI.
package main

func main() {
	Execute()
}
