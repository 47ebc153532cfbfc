package sound

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Platform represents the current operating system platform.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// AudioSubsystem represents the audio subsystem the backend will talk to.
type AudioSubsystem string

const (
	AudioSubsystemALSA       AudioSubsystem = "alsa"
	AudioSubsystemPulseAudio AudioSubsystem = "pulseaudio"
	AudioSubsystemCoreAudio  AudioSubsystem = "coreaudio"
	AudioSubsystemWASAPI     AudioSubsystem = "wasapi"
	AudioSubsystemNone       AudioSubsystem = "none"
)

// PlatformInfo describes the host the output backend runs on.
type PlatformInfo struct {
	OS             Platform
	AudioSubsystem AudioSubsystem
	Arch           string
	IsCI           bool
}

// DetectPlatform inspects the host and its audio subsystem.
func DetectPlatform() *PlatformInfo {
	info := &PlatformInfo{
		OS:   getPlatform(),
		Arch: runtime.GOARCH,
		IsCI: IsCI(),
	}

	switch info.OS {
	case PlatformLinux:
		info.AudioSubsystem = detectLinuxAudio()
	case PlatformDarwin:
		info.AudioSubsystem = AudioSubsystemCoreAudio
	case PlatformWindows:
		info.AudioSubsystem = AudioSubsystemWASAPI
	default:
		info.AudioSubsystem = AudioSubsystemNone
	}

	log.Debug("Platform detected",
		"os", info.OS,
		"audio", info.AudioSubsystem,
		"is_ci", info.IsCI)
	return info
}

func getPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// detectLinuxAudio prefers PulseAudio when its daemon answers, then ALSA.
func detectLinuxAudio() AudioSubsystem {
	if isCommandAvailable("pactl") {
		if output, err := exec.Command("pactl", "info").Output(); err == nil {
			if strings.Contains(string(output), "Server Name") {
				return AudioSubsystemPulseAudio
			}
		}
	}
	if isCommandAvailable("aplay") {
		return AudioSubsystemALSA
	}
	return AudioSubsystemNone
}

func isCommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
