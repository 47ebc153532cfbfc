package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"soundpool/internal/clips"
	"soundpool/pkg/sound"
)

var (
	musicVolume float64
	musicOnce   bool

	musicCmd = &cobra.Command{
		Use:   "music FILE",
		Short: "Play a WAV file on the dedicated music source",
		Long: paragraph(
			fmt.Sprintf("\nPlay a track on the %s source. Music bypasses the effect pool entirely and loops until interrupted.", keyword("dedicated music")),
		),
		Example: paragraph("soundpool music theme.wav\nsoundpool music ambience.wav --volume 0.4"),
		Args:    cobra.ExactArgs(1),
		RunE:    runMusic,
	}
)

func init() {
	musicCmd.Flags().Float64VarP(&musicVolume, "volume", "v", 1.0, "music volume (0.0 to 1.0)")
	musicCmd.Flags().BoolVar(&musicOnce, "once", false, "play once instead of looping")
}

func runMusic(_ *cobra.Command, args []string) error {
	mgr, cfg, err := newManager()
	if err != nil {
		return err
	}

	lifecycle := sound.NewLifecycleManager()
	lifecycle.Register(sound.NewManagerLifecycle(mgr))
	lifecycle.Start()

	lib := clips.NewLibrary(cfg.Format)
	clip, err := lib.Load(expandPath(args[0]))
	if err != nil {
		_ = lifecycle.Shutdown()
		return err
	}

	req := sound.Request{
		Clips:  []*sound.Clip{clip},
		Volume: musicVolume,
		Loop:   !musicOnce,
	}
	if err := mgr.PlayMusic(req); err != nil {
		_ = lifecycle.Shutdown()
		return err
	}

	fmt.Printf("  %s %s %s\n",
		okStyle.Render("♪"),
		clip.Name,
		subtle(clip.Duration().String()))

	if musicOnce {
		time.Sleep(clip.Duration())
		return lifecycle.Shutdown()
	}

	fmt.Println(subtle("  Press ctrl-c to stop"))
	lifecycle.Wait()
	return nil
}
