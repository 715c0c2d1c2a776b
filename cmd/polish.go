/*
Copyright © 2025 Ruimiao Li (ruimiaoli@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/polish"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/tools"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/utils"
)

// polishCmd represents the polish command
var polishCmd = &cobra.Command{
	Use:   "polish -g <assembly fasta> -1 <forward reads> -2 <reverse reads> -o <output directory> [args]",
	Short: "Polishes an existing assembly with short reads",
	Long: `polish runs the iterative bwa + samtools + Pilon correction loop against an
existing assembly without re-running the rest of the pipeline. The loop stops
when a round introduces no corrections or when the round budget is spent, and
falls back to the last good genome when a round fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		genomeFile, gErr := cmd.Flags().GetString("genome")
		if gErr != nil {
			log.Fatalf("Error getting genome flag: %v", gErr)
		}

		forwardReads, fErr := cmd.Flags().GetString("forward")
		if fErr != nil {
			log.Fatalf("Error getting forward flag: %v", fErr)
		}

		reverseReads, rErr := cmd.Flags().GetString("reverse")
		if rErr != nil {
			log.Fatalf("Error getting reverse flag: %v", rErr)
		}

		outputDir, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}

		rounds, rdErr := cmd.Flags().GetInt("rounds")
		if rdErr != nil {
			log.Fatalf("Error getting rounds flag: %v", rdErr)
		}

		threads, tErr := cmd.Flags().GetInt("threads")
		if tErr != nil {
			log.Fatalf("Error getting threads flag: %v", tErr)
		}

		memoryGB, mErr := cmd.Flags().GetInt("memory")
		if mErr != nil {
			log.Fatalf("Error getting memory flag: %v", mErr)
		}

		allowLowDisk, adErr := cmd.Flags().GetBool("allow_low_disk_polish")
		if adErr != nil {
			log.Fatalf("Error getting allow_low_disk_polish flag: %v", adErr)
		}

		force, fcErr := cmd.Flags().GetBool("force")
		if fcErr != nil {
			log.Fatalf("Error getting force flag: %v", fcErr)
		}

		if genomeFile == "" || forwardReads == "" || reverseReads == "" || outputDir == "" {
			log.Fatal("Please provide an assembly (-g), both read files (-1, -2) and an output directory (-o)")
		}
		for _, f := range []string{genomeFile, forwardReads, reverseReads} {
			if !utils.FileExists(f) {
				log.Fatalf("File %s not found", f)
			}
		}
		if rounds < 1 {
			log.Fatal("Rounds must be at least 1")
		}

		fmt.Printf("Checking tool versions ...\n\n")
		polishTools := lo.Filter(tools.DefaultTools(), func(t tools.Tool, _ int) bool {
			return t.Group == tools.PolishGroup
		})
		gate, gateErr := tools.CheckAll(polishTools)
		printGate(gate)
		if gateErr != nil {
			log.Fatalf("Tool check failed: %v", gateErr)
		}
		if !tools.PolishReady(gate) {
			log.Fatal("bwa, samtools and pilon are all required for polishing")
		}

		if err := utils.CreateResultsDir(outputDir, force); err != nil {
			log.Fatalf("Preparing output directory failed: %v", err)
		}
		logger, logFile, logErr := utils.NewRunLogger(outputDir)
		if logErr != nil {
			log.Fatalf("Opening run log failed: %v", logErr)
		}
		defer logFile.Close()

		base := strings.TrimSuffix(filepath.Base(genomeFile), filepath.Ext(genomeFile))
		loop := &polish.Loop{
			Runner:   stage.NewRunner(logger),
			Tooling:  polish.BwaPilonTooling{ForwardReads: forwardReads, ReverseReads: reverseReads, Threads: threads, MemoryGB: memoryGB},
			Logger:   logger,
			WorkDir:  filepath.Join(outputDir, "polish"),
			BaseName: base,
			Rounds:   rounds,

			ForwardReads: forwardReads,
			ReverseReads: reverseReads,
			AllowLowDisk: allowLowDisk,
		}
		state, outcome := loop.Run(genomeFile)

		fmt.Printf("\nPolishing finished: %s after %d round(s)\n", outcome, state.Round)
		if len(state.Changes) > 0 {
			fmt.Printf("Corrections per round: %v\n", state.Changes)
		}

		dest := filepath.Join(outputDir, base+"_polished.fasta")
		if err := utils.CopyFile(state.Current, dest); err != nil {
			log.Fatalf("Copying polished genome failed: %v", err)
		}
		fmt.Printf("Polished genome: %s\n", dest)
	},
}

func init() {
	rootCmd.AddCommand(polishCmd)

	// Here you will define your flags and configuration settings.

	// ------------------------------------------------ INPUTS ------------------------------------------------------ //
	polishCmd.Flags().StringP("genome", "g", "", "Path to the assembly fasta file to polish")
	polishCmd.Flags().StringP("forward", "1", "", "Path to forward (R1) reads fastq file, may be gzipped")
	polishCmd.Flags().StringP("reverse", "2", "", "Path to reverse (R2) reads fastq file, may be gzipped")

	// ----------------------------------------------- OUTPUTS ------------------------------------------------------ //
	polishCmd.Flags().StringP("out", "o", "", "Output directory")

	// ------------------------------------------------ BUDGET ------------------------------------------------------ //
	polishCmd.Flags().IntP("rounds", "r", 4, "maximum number of polishing rounds")
	polishCmd.Flags().IntP("threads", "t", 8, "number of threads")
	polishCmd.Flags().IntP("memory", "m", 16, "memory budget in GB")

	// ------------------------------------------------ TOGGLES ----------------------------------------------------- //
	polishCmd.Flags().Bool("allow_low_disk_polish", false, "polish even when free disk space looks too small")
	polishCmd.Flags().BoolP("force", "f", false, "overwrite a non-empty output directory")
}
