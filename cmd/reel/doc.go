// Command reel manages a footage catalog: it ingests clips, keeps hashes,
// stream flags and previews in sync with the files, records scenes, shots
// and takes, and organizes the footage tree by that metadata.
package main
