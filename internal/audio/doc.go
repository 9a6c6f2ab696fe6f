// Package audio plays the optional quota alert sound.
// WAV, OGG and MP3 files are decoded with beep and cached in memory.
package audio
