// Package n64rd implements the host side of the GameShark Pro's
// nibble-mode parallel-port protocol: reading and writing N64 CPU
// memory, dumping the cartridge's own ROM, and querying firmware
// version and run mode.
package n64rd
