/*
Copyright © 2025 Ruimiao Li (ruimiaoli@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/config"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/pipeline"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/tools"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/utils"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run -1 <forward reads> -2 <reverse reads> -o <output directory> [args]",
	Short: "Runs the whole assembly pipeline",
	Long: `run takes a paired-end short read library through trimming (fastp), de novo
assembly (SPAdes), evaluation (QUAST), iterative polishing (bwa + samtools +
Pilon), contig renaming and annotation (Prokka), then writes a text report
and an HTML chart page into the output directory.

Parameters can come from flags, from a YAML config file (--config), or both.
Flags win where both are set. Optional tools that are missing only skip their
own stage; fastp and spades.py must be installed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadRunConfig(cmd)

		fmt.Printf("Checking tool versions ...\n\n")
		gate, gateErr := tools.CheckAll(tools.DefaultTools())
		printGate(gate)
		if gateErr != nil {
			log.Fatalf("Tool check failed: %v", gateErr)
		}

		if err := utils.CreateResultsDir(cfg.OutputDir, cfg.Force); err != nil {
			log.Fatalf("Preparing output directory failed: %v", err)
		}

		logger, logFile, logErr := utils.NewRunLogger(cfg.OutputDir)
		if logErr != nil {
			log.Fatalf("Opening run log failed: %v", logErr)
		}
		defer logFile.Close()

		driver := pipeline.New(cfg, logger, gate)
		if _, err := driver.Run(); err != nil {
			log.Fatalf("Pipeline failed: %v", err)
		}
	},
}

// loadRunConfig merges the config file (if any) with the run flags, fills
// defaults and validates the result. Flags beat the file.
func loadRunConfig(cmd *cobra.Command) config.RunConfig {
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

	baseName, bErr := cmd.Flags().GetString("base_name")
	if bErr != nil {
		log.Fatalf("Error getting base_name flag: %v", bErr)
	}

	threads, tErr := cmd.Flags().GetInt("threads")
	if tErr != nil {
		log.Fatalf("Error getting threads flag: %v", tErr)
	}

	memoryGB, mErr := cmd.Flags().GetInt("memory")
	if mErr != nil {
		log.Fatalf("Error getting memory flag: %v", mErr)
	}

	minQuality, mqErr := cmd.Flags().GetInt("min_quality")
	if mqErr != nil {
		log.Fatalf("Error getting min_quality flag: %v", mqErr)
	}

	minLength, mlErr := cmd.Flags().GetInt("min_length")
	if mlErr != nil {
		log.Fatalf("Error getting min_length flag: %v", mlErr)
	}

	polishRounds, prErr := cmd.Flags().GetInt("polish_rounds")
	if prErr != nil {
		log.Fatalf("Error getting polish_rounds flag: %v", prErr)
	}

	lowMemory, lmErr := cmd.Flags().GetBool("low_memory")
	if lmErr != nil {
		log.Fatalf("Error getting low_memory flag: %v", lmErr)
	}

	skipPolish, spErr := cmd.Flags().GetBool("skip_polish")
	if spErr != nil {
		log.Fatalf("Error getting skip_polish flag: %v", spErr)
	}

	force, fcErr := cmd.Flags().GetBool("force")
	if fcErr != nil {
		log.Fatalf("Error getting force flag: %v", fcErr)
	}

	allowLowDisk, adErr := cmd.Flags().GetBool("allow_low_disk_polish")
	if adErr != nil {
		log.Fatalf("Error getting allow_low_disk_polish flag: %v", adErr)
	}

	var cfg config.RunConfig
	if cfgFile != "" {
		fmt.Println("Reading config file ...")
		loaded, err := config.Load(cfgFile)
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("forward") {
		cfg.ForwardReads = forwardReads
	}
	if cmd.Flags().Changed("reverse") {
		cfg.ReverseReads = reverseReads
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = outputDir
	}
	if cmd.Flags().Changed("base_name") {
		cfg.BaseName = baseName
	}
	if cmd.Flags().Changed("threads") {
		cfg.Threads = threads
	}
	if cmd.Flags().Changed("memory") {
		cfg.MemoryGB = memoryGB
	}
	if cmd.Flags().Changed("min_quality") {
		cfg.MinQuality = minQuality
	}
	if cmd.Flags().Changed("min_length") {
		cfg.MinLength = minLength
	}
	if cmd.Flags().Changed("polish_rounds") {
		cfg.PolishRounds = polishRounds
	}
	if cmd.Flags().Changed("low_memory") {
		cfg.LowMemory = lowMemory
	}
	if cmd.Flags().Changed("skip_polish") {
		cfg.SkipPolish = skipPolish
	}
	if cmd.Flags().Changed("force") {
		cfg.Force = force
	}
	if cmd.Flags().Changed("allow_low_disk_polish") {
		cfg.LowDiskPolish = allowLowDisk
	}

	config.ApplyDefaults(&cfg)

	if problems := cfg.Validate(); len(problems) > 0 {
		fmt.Println("Invalid run parameters:")
		for _, p := range problems {
			fmt.Printf("  %v\n", p)
		}
		log.Fatal("Please fix the parameters above and try again")
	}
	return cfg
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// runCmd.PersistentFlags().String("foo", "", "A help for foo")

	// ------------------------------------------------ READS ------------------------------------------------------- //
	runCmd.Flags().StringP("forward", "1", "", "Path to forward (R1) reads fastq file, may be gzipped")
	runCmd.Flags().StringP("reverse", "2", "", "Path to reverse (R2) reads fastq file, may be gzipped")

	// ----------------------------------------------- OUTPUTS ------------------------------------------------------ //
	runCmd.Flags().StringP("out", "o", "", "Output directory")
	runCmd.Flags().StringP("base_name", "n", "", "Sample name used for output files (default: derived from forward reads)")

	// ------------------------------------------------ BUDGET ------------------------------------------------------ //
	runCmd.Flags().IntP("threads", "t", config.DefaultThreads, "number of threads")
	runCmd.Flags().IntP("memory", "m", config.DefaultMemoryGB, "memory budget in GB")

	// ----------------------------------------------- TRIMMING ----------------------------------------------------- //
	runCmd.Flags().IntP("min_quality", "q", config.DefaultMinQuality, "minimum base quality kept by trimming")
	runCmd.Flags().IntP("min_length", "l", config.DefaultMinLength, "minimum read length kept after trimming")

	// ----------------------------------------------- POLISHING ---------------------------------------------------- //
	runCmd.Flags().IntP("polish_rounds", "r", config.DefaultPolishRounds, "maximum number of polishing rounds")
	runCmd.Flags().Bool("skip_polish", false, "skip the polishing loop")
	runCmd.Flags().Bool("allow_low_disk_polish", false, "polish even when free disk space looks too small")

	// ------------------------------------------------ TOGGLES ----------------------------------------------------- //
	runCmd.Flags().Bool("low_memory", false, "low memory assembly mode")
	runCmd.Flags().BoolP("force", "f", false, "overwrite a non-empty output directory")
}
