// Command drivekit stores and fetches items through a configured drivekit
// driver.
package main

func main() {
	Execute()
}
