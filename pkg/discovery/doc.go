// Package discovery advertises and locates sealink endpoints on the local
// network via mDNS (DNS-SD).
//
// Endpoints that accept encrypted connections register the _sealink._tcp
// service; clients browse for it instead of configuring addresses by hand.
// Key material is never carried in discovery records: TXT records identify
// the endpoint and its protocol version only, and a discovered endpoint is
// still unusable without the out-of-band shared key.
package discovery
