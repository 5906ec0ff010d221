// Package discord reads the "messages" folder of a Discord data package.
//
// The folder holds one subdirectory per channel, each with a messages.csv
// (columns ID, Timestamp, Contents, Attachments), and an optional index.json
// mapping channel IDs to human readable names.
package discord
