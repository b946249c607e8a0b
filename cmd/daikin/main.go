package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "daikin",
	Short: "Daikin Air Conditioner Control CLI",
	Long:  `A command line interface for monitoring and controlling Daikin air conditioners over their wireless LAN adapter.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
