// Package confloader loads worldsave CLI settings.
//
// Settings merge from two sources, later winning:
//
//  1. An optional YAML file (--config / WORLDSAVE_CONFIG)
//  2. WORLDSAVE_* environment variables
//
// Keys nest with dots; environment variables map every underscore after
// the prefix to a dot, so WORLDSAVE_ARCHIVE_DIR sets archive.dir.
package confloader
