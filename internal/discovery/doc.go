// Package discovery announces the Auric Core instance on the local
// network via mDNS/DNS-SD.
//
// Loxone-style music apps find controllers by browsing for the
// _musicserver._tcp service; announcing here lets them locate the
// emulator without manual IP entry. The announcement carries the
// configured instance name and the HTTP/WebSocket port.
//
// Discovery is optional. When disabled in configuration the rest of the
// server runs unchanged and clients connect by address.
package discovery
