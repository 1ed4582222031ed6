// Package audio plays notification sounds.
//
// Sounds are chosen per urgency from the configuration or taken from the
// client's sound-file hint, decoded once with beep and cached until the
// file changes on disk.
package audio
