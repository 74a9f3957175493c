// Command mdmctl drives the master data portal from a terminal.
package main

func main() {
	Execute()
}
