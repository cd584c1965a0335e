// Package webmdk is a toolkit for pulling apart WebM media: a
// Matroska/EBML demuxer that recovers per-track coded frames, a VP9
// uncompressed-header parser, and the glue to route demuxed frames to
// audio and video consumers.
//
// The root package only carries the shared logger hook. The interesting
// parts live in format/webm (container), codec/vp9parser and
// codec/opusparser (bitstreams), and audio (sink client).
package webmdk
