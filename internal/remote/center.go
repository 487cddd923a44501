package remote

// NowPlayingCenter shows now-playing metadata and playback state.
type NowPlayingCenter interface {
	SetNowPlaying(md Metadata) error
	SetPlaybackState(playing bool) error
}

// CommandCenter delivers transport commands to a handler.
type CommandCenter interface {
	// Enable starts delivering commands to handler.
	Enable(handler CommandHandler) error
	// Disable stops delivery. Commands received afterwards are dropped.
	Disable() error
}
