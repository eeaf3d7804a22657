/*
 * MIT License
 *
 * Copyright (c) 2026 wampcc contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package config holds the process-wide configuration recognized by the
// kernel, reactor, and socket layers. Values can be built directly with
// Default()/struct literals, or loaded from a file or the environment
// via Load, which is backed by github.com/spf13/viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Serializer selects the wire codec negotiated during the rawsocket
// handshake.
type Serializer uint8

const (
	// SerializerJSON selects serializer_id=1.
	SerializerJSON Serializer = 1
	// SerializerMsgpack selects serializer_id=2.
	SerializerMsgpack Serializer = 2
)

// Config holds every recognized option from the specification's §6,
// plus the write-batching and serializer defaults this implementation
// adds to fully pin down behavior the spec left to the transport.
type Config struct {
	// SocketMaxPendingWriteBytes upper-bounds in-flight+queued outbound
	// bytes per socket; exceeding it forces the socket closed.
	SocketMaxPendingWriteBytes int64 `mapstructure:"socket_max_pending_write_bytes"`

	// ConnectTimeout upper-bounds the connect future's resolution.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout_ms"`

	// SessionOpenTimeout upper-bounds HELLO -> WELCOME latency.
	SessionOpenTimeout time.Duration `mapstructure:"session_open_timeout_ms"`

	// UseHostnameResolution, when false, requires Connect to be given a
	// numeric address.
	UseHostnameResolution bool `mapstructure:"use_hostname_resolution"`

	// WriteBatchBytes bounds how many bytes the reactor drains from one
	// socket's pending-write queue per reactor turn, so a tight publish
	// loop cannot starve other posted work (see §4.2 / §9).
	WriteBatchBytes int64 `mapstructure:"write_batch_bytes"`

	// Serializer selects the default wire codec offered during dial.
	Serializer Serializer `mapstructure:"serializer"`

	// MaxMsgSizeExp is the rawsocket max_msg_size_exp this side offers,
	// giving a maximum frame length of 2^(9+exp) bytes. Must be in [0,15].
	MaxMsgSizeExp uint8 `mapstructure:"max_msg_size_exp"`
}

// Default returns the Config the kernel uses when the application does
// not supply one: a 16MiB per-socket backpressure threshold, a 1MiB
// write batch, JSON serialization, the maximum negotiable frame size,
// and hostname resolution enabled.
func Default() Config {
	return Config{
		SocketMaxPendingWriteBytes: 16 << 20,
		ConnectTimeout:             30 * time.Second,
		SessionOpenTimeout:         10 * time.Second,
		UseHostnameResolution:      true,
		WriteBatchBytes:            1 << 20,
		Serializer:                 SerializerJSON,
		MaxMsgSizeExp:              15,
	}
}

// Load reads configuration from the given file path (any format viper
// supports: yaml, json, toml, ...) layered over Default(), and allows
// overriding any key via WAMPCC_-prefixed environment variables (e.g.
// WAMPCC_SOCKET_MAX_PENDING_WRITE_BYTES). An empty path skips the file
// and only applies defaults + environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("wampcc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("socket_max_pending_write_bytes", def.SocketMaxPendingWriteBytes)
	v.SetDefault("connect_timeout_ms", def.ConnectTimeout.Milliseconds())
	v.SetDefault("session_open_timeout_ms", def.SessionOpenTimeout.Milliseconds())
	v.SetDefault("use_hostname_resolution", def.UseHostnameResolution)
	v.SetDefault("write_batch_bytes", def.WriteBatchBytes)
	v.SetDefault("serializer", uint8(def.Serializer))
	v.SetDefault("max_msg_size_exp", def.MaxMsgSizeExp)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		SocketMaxPendingWriteBytes: v.GetInt64("socket_max_pending_write_bytes"),
		ConnectTimeout:             v.GetDuration("connect_timeout_ms") * time.Millisecond,
		SessionOpenTimeout:         v.GetDuration("session_open_timeout_ms") * time.Millisecond,
		UseHostnameResolution:      v.GetBool("use_hostname_resolution"),
		WriteBatchBytes:            v.GetInt64("write_batch_bytes"),
		Serializer:                 Serializer(v.GetUint("serializer")),
		MaxMsgSizeExp:              uint8(v.GetUint("max_msg_size_exp")),
	}

	// ConnectTimeout/SessionOpenTimeout above double-multiplied ms->ns
	// when the raw value is itself a time.Duration read from viper; undo
	// that by re-reading as plain integers of milliseconds.
	cfg.ConnectTimeout = time.Duration(v.GetInt64("connect_timeout_ms")) * time.Millisecond
	cfg.SessionOpenTimeout = time.Duration(v.GetInt64("session_open_timeout_ms")) * time.Millisecond

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.SessionOpenTimeout <= 0 {
		cfg.SessionOpenTimeout = def.SessionOpenTimeout
	}
	if cfg.MaxMsgSizeExp > 15 {
		cfg.MaxMsgSizeExp = 15
	}

	return cfg, nil
}
