// Package audio post-processes downloaded stems.
//
// This package contains:
//   - ID3 tagging of stem files (title, album = mix name, track number)
//   - M3U playlist generation for a mix's downloaded stems
//
// Both are optional steps controlled by settings; neither touches audio
// content, only metadata and sibling files.
package audio
