// Package services implements the driving ports on top of the driven ones.
// Nothing here opens files, databases or sockets.
package services
