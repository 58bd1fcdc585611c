// Package link keeps the device connected to its companion.
//
// The manager resolves the companion address (a fixed host:port or an mDNS
// lookup), dials it, and hands the connection to the message gateway as its
// sender. When the connection drops it detaches the sender and redials:
//
//  1. Initial delay: 500 ms
//  2. Exponential increase: 1s, 2s, 4s, ...
//  3. Maximum delay: 30 seconds
//  4. Reset to the initial delay on a successful connect
//
// Each delay carries up to 25% random jitter.
package link
