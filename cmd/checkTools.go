/*
Copyright © 2025 Ruimiao Li (ruimiaoli@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/tools"
)

// checkToolsCmd represents the checkTools command
var checkToolsCmd = &cobra.Command{
	Use:   "checkTools",
	Short: "Checks that the external tools are installed and recent enough",
	Long: `checkTools resolves every external tool on PATH, probes its version and
compares it against the tested minimum. Missing required tools fail the
check; missing optional tools only mean their stage would be skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Checking tool versions ...\n\n")

		gate, err := tools.CheckAll(tools.DefaultTools())
		printGate(gate)
		for _, a := range tools.Advisories(gate) {
			fmt.Println(a)
		}
		if err != nil {
			log.Fatalf("Tool check failed: %v", err)
		}
		if !tools.PolishReady(gate) {
			fmt.Println("Polishing tools incomplete, the polishing loop would be skipped.")
		}
		fmt.Printf("\nAll required tools found.\n")
	},
}

func printGate(results []tools.GateResult) {
	for _, r := range results {
		if !r.Available {
			fmt.Printf("%-10s MISSING (%s)\n", r.Tool, r.Criticality)
			continue
		}
		line := fmt.Sprintf("%-10s %-10s %s", r.Tool, r.Version.String(), r.Path)
		if !r.MeetsMinimum {
			line += "  (below tested minimum)"
		}
		fmt.Println(line)
	}
	fmt.Printf("\n")
}

func init() {
	rootCmd.AddCommand(checkToolsCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// checkToolsCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// checkToolsCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
