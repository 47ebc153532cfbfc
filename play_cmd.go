package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundpool/internal/clips"
	"soundpool/pkg/sound"
)

var (
	playVolume float64
	playPitch  float64
	playLoop   bool
	playAt     string
	playBlend  float64

	playCmd = &cobra.Command{
		Use:   "play FILE...",
		Short: "Play WAV files through the source pool",
		Long: paragraph(
			fmt.Sprintf("\n%s one or more WAV files. When several files are given, one is picked at random, the way a game varies its footstep sounds.", keyword("Play")),
		),
		Example: paragraph("soundpool play click.wav\nsoundpool play step1.wav step2.wav step3.wav --volume 0.6\nsoundpool play siren.wav --loop --at 10,0,3"),
		Args:    cobra.MinimumNArgs(1),
		RunE:    runPlay,
	}
)

func init() {
	playCmd.Flags().Float64VarP(&playVolume, "volume", "v", 1.0, "playback volume (0.0 to 1.0)")
	playCmd.Flags().Float64VarP(&playPitch, "pitch", "P", 1.0, "playback pitch (0.5 to 2.0)")
	playCmd.Flags().BoolVarP(&playLoop, "loop", "l", false, "loop until interrupted")
	playCmd.Flags().StringVar(&playAt, "at", "", "world position as X,Y,Z for spatial playback")
	playCmd.Flags().Float64Var(&playBlend, "blend", 1.0, "spatial blend, 0 is flat and 1 is fully positional")
}

// parsePosition parses an X,Y,Z triple.
func parsePosition(s string) (sound.Position, error) {
	var pos sound.Position
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return pos, fmt.Errorf("position must be X,Y,Z, got %q", s)
	}
	coords := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return pos, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		coords[i] = v
	}
	pos.X, pos.Y, pos.Z = coords[0], coords[1], coords[2]
	return pos, nil
}

func runPlay(_ *cobra.Command, args []string) error {
	mgr, cfg, err := newManager()
	if err != nil {
		return err
	}

	lifecycle := sound.NewLifecycleManager()
	lifecycle.Register(sound.NewManagerLifecycle(mgr))
	lifecycle.Start()

	lib := clips.NewLibrary(cfg.Format)
	paths := make([]string, len(args))
	for i, a := range args {
		paths[i] = expandPath(a)
	}
	loaded, err := lib.LoadAll(paths)
	if err != nil {
		_ = lifecycle.Shutdown()
		return err
	}

	req := sound.Request{
		Clips:  loaded,
		Volume: playVolume,
		Pitch:  playPitch,
		Loop:   playLoop,
	}

	var at sound.Position
	if playAt != "" {
		at, err = parsePosition(playAt)
		if err != nil {
			_ = lifecycle.Shutdown()
			return err
		}
		req.SpatialBlend = playBlend
	}

	src, err := mgr.PlaySound(req, at)
	if err != nil {
		_ = lifecycle.Shutdown()
		if errors.Is(err, sound.ErrNoClips) {
			return errors.New("nothing to play")
		}
		return err
	}

	fmt.Printf("  %s %s %s\n",
		okStyle.Render("▶"),
		src.Clip().Name,
		subtle(src.Clip().Duration().Round(10*time.Millisecond).String()))

	if playLoop {
		fmt.Println(subtle("  Looping, press ctrl-c to stop"))
		lifecycle.Wait()
		return nil
	}

	// Wait for the completion watcher to return the source to the pool.
	for src.State() == sound.SourceActive {
		time.Sleep(20 * time.Millisecond)
	}

	stats, metrics := mgr.Stats()
	fmt.Println(subtle(fmt.Sprintf("  Done, %d completed, pool %d idle / %d active",
		metrics.Completions, stats.IdleCount, stats.ActiveCount)))
	return lifecycle.Shutdown()
}
