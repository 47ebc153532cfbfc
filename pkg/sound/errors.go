package sound

import "errors"

// Common errors for the sound system.
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid sound request")
	ErrNoClips        = errors.New("request has no clip candidates")
	ErrInvalidVolume  = errors.New("volume out of range")
	ErrInvalidPitch   = errors.New("pitch out of range")

	// Pool and source errors
	ErrNotActive      = errors.New("source is not active")
	ErrPoolClosed     = errors.New("source pool is closed")
	ErrSourceDetached = errors.New("source does not belong to this pool")

	// Manager errors
	ErrManagerClosed = errors.New("audio manager is closed")
	ErrNoMusic       = errors.New("no music is playing")
	ErrNoClickClip   = errors.New("no button click clip configured")

	// Output backend errors
	ErrOutputNotReady   = errors.New("output backend is not ready")
	ErrOutputClosed     = errors.New("output backend is closed")
	ErrOutputExhausted  = errors.New("output backend cannot create more players")
	ErrEmptyClip        = errors.New("clip has no audio data")
	ErrInvalidClip      = errors.New("clip data does not match its format")
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)
