package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"soundpool/pkg/sound"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the host audio setup",
	Long: paragraph(
		fmt.Sprintf("\nInspect the %s and report whether real playback will work, which subsystem will carry it, and what the effective configuration looks like.", keyword("audio stack")),
	),
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(*cobra.Command, []string) error {
	var report strings.Builder

	report.WriteString(titleStyle.Render("Audio Environment Report"))
	report.WriteString("\n\n")

	info := sound.DetectPlatform()
	report.WriteString("Platform:\n")
	report.WriteString(fmt.Sprintf("  %s %s/%s\n", okStyle.Render("✓"), info.OS, info.Arch))

	report.WriteString("\nAudio subsystem:\n")
	if info.AudioSubsystem == sound.AudioSubsystemNone {
		report.WriteString(errStyle.Render("  ✗ none detected: "))
		report.WriteString("real playback will fail, use --mock\n")
	} else {
		report.WriteString(okStyle.Render("  ✓ " + string(info.AudioSubsystem) + "\n"))
	}

	report.WriteString("\nEnvironment:\n")
	if info.IsCI {
		report.WriteString(warnStyle.Render("  ○ CI detected: "))
		report.WriteString("auto backend falls back to mock output\n")
	} else {
		report.WriteString(okStyle.Render("  ✓ interactive host\n"))
	}

	cfg, err := sound.LoadConfig(viper.GetViper())
	report.WriteString("\nConfiguration:\n")
	if err != nil {
		report.WriteString(errStyle.Render("  ✗ invalid: "))
		report.WriteString(err.Error() + "\n")
	} else {
		report.WriteString(fmt.Sprintf("  %s batch size %d, %d Hz, %d channel(s)\n",
			okStyle.Render("✓"), cfg.BatchSize, cfg.Format.SampleRate, cfg.Format.Channels))
		report.WriteString(subtle(fmt.Sprintf("    master %.2f, sfx %.2f, music %.2f, click %.2f\n",
			cfg.MasterVolume, cfg.SFXVolume, cfg.MusicVolume, cfg.ClickVolume)))
	}
	if used := viper.ConfigFileUsed(); used != "" {
		report.WriteString(subtle("    config file: " + used + "\n"))
	}

	// Opening the backend is the real test; everything above is a guess.
	report.WriteString("\nOutput backend:\n")
	if err == nil {
		output, openErr := sound.NewOutput(cfg.Output, cfg.Format)
		if openErr != nil {
			report.WriteString(errStyle.Render("  ✗ failed to open: "))
			report.WriteString(openErr.Error() + "\n")
		} else {
			report.WriteString(fmt.Sprintf("  %s ready at %d Hz\n", okStyle.Render("✓"), output.SampleRate()))
			_ = output.Close()
		}
	}

	fmt.Print(report.String())
	return nil
}
