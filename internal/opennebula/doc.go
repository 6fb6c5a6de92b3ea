// Package opennebula reads the context file an OpenNebula host attaches to
// a guest and turns it into a sysconfig.SystemConfig.
//
// The context is a shell fragment of quoted assignments:
//
//	# Context variables generated by OpenNebula
//	ETH0_IP='10.0.0.5'
//	ETH0_MAC='02:00:0a:00:00:05'
//	ETH0_DNS='8.8.8.8 8.8.4.4'
//	HOSTNAME='web1'
//	SSH_PUBLIC_KEY='ssh-ed25519 AAAA... user@host'
//
// Only line continuation and a single level of quoting are understood.
// Unknown variables and lines that do not parse as quoted assignments are
// skipped; a bad header, a bad interface unit or a rejected address abort
// the parse.
//
// Parsing is not transactional. Addresses are appended to the caller's
// SystemConfig as they are found and stay there if a later line fails.
// The hostname and instance identity are only written once the whole file
// has been read and hashed.
package opennebula
