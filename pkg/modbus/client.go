// Copyright (C) 2025 Josh Simonot
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package modbus wraps a Modbus TCP client with a named-register map:
// registers are addressed by configured name and read/written as scaled
// float values.
package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"sync"
	"time"

	"pidloop/pkg/logger"

	wrapper "github.com/grid-x/modbus"
)

type Client struct {
	mu      sync.Mutex
	handler *wrapper.TCPClientHandler
	client  wrapper.Client
	conf    *Config
	log     *logger.Logger
	ctx     context.Context
}

// NewClient connects a Modbus TCP client for the configured device.
func NewClient(ctx context.Context, conf *Config) (*Client, error) {
	c := &Client{
		conf: conf,
		log:  logger.New("ModbusConn"),
		ctx:  ctx,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		_ = c.handler.Close()
	}

	addr := fmt.Sprintf("%s:%d", c.conf.Modbus.Host, c.conf.Modbus.Port)
	handler := wrapper.NewTCPClientHandler(addr)
	handler.SlaveID = c.conf.Modbus.SlaveID
	handler.Timeout = time.Duration(c.conf.Modbus.Timeout) * time.Second
	handler.ProtocolRecoveryTimeout = 250 * time.Millisecond
	handler.LinkRecoveryTimeout = 5 * time.Second

	c.log.Info("connecting to %s...", addr)
	if err := handler.Connect(c.ctx); err != nil {
		return fmt.Errorf("modbus connect %s: %w", addr, err)
	}

	c.handler = handler
	c.client = wrapper.NewClient(handler)
	c.log.Info("connected to %s", addr)
	return nil
}

// retry runs op, reconnecting once if the connection dropped.
func (c *Client) retry(op func() error) error {
	err := op()
	if err == nil || !isConnError(err) {
		return err
	}
	c.log.Error("connection error: %v, reconnecting", err)
	if cerr := c.connect(); cerr != nil {
		return cerr
	}
	return op()
}

// ReadFloat reads a named register and returns its scaled value.
func (c *Client) ReadFloat(name string) (float64, error) {
	def, ok := c.conf.Registers[name]
	if !ok {
		return 0, fmt.Errorf("register %q not configured", name)
	}

	var raw []byte
	err := c.retry(func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		var rerr error
		raw, rerr = c.client.ReadHoldingRegisters(c.ctx, def.Address, registerCount(def.DataType))
		return rerr
	})
	if err != nil {
		return 0, fmt.Errorf("read register %q: %w", name, err)
	}
	if len(raw) < int(registerCount(def.DataType))*2 {
		return 0, fmt.Errorf("register %q returned short data", name)
	}

	var val float64
	switch def.DataType {
	case "float32":
		val = float64(math.Float32frombits(binary.BigEndian.Uint32(raw)))
	case "int16":
		val = float64(int16(binary.BigEndian.Uint16(raw)))
	case "uint16":
		val = float64(binary.BigEndian.Uint16(raw))
	}

	if def.Scale != 0 {
		val = val*def.Scale + def.Offset
	}
	return val, nil
}

// WriteFloat writes a scaled value into a named register.
func (c *Client) WriteFloat(name string, val float64) error {
	def, ok := c.conf.Registers[name]
	if !ok {
		return fmt.Errorf("register %q not configured", name)
	}
	if !def.Writable {
		return fmt.Errorf("register %q is read-only", name)
	}

	if def.Scale != 0 {
		val = (val - def.Offset) / def.Scale
	}

	var raw []byte
	switch def.DataType {
	case "float32":
		raw = make([]byte, 4)
		binary.BigEndian.PutUint32(raw, math.Float32bits(float32(val)))
	case "int16":
		ival := int64(math.Round(val))
		if ival < math.MinInt16 || ival > math.MaxInt16 {
			return fmt.Errorf("value %v out of int16 range for register %q", val, name)
		}
		raw = make([]byte, 2)
		binary.BigEndian.PutUint16(raw, uint16(ival))
	case "uint16":
		ival := int64(math.Round(val))
		if ival < 0 || ival > math.MaxUint16 {
			return fmt.Errorf("value %v out of uint16 range for register %q", val, name)
		}
		raw = make([]byte, 2)
		binary.BigEndian.PutUint16(raw, uint16(ival))
	}

	c.log.Debug("write register %q <- %v", name, val)
	err := c.retry(func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, werr := c.client.WriteMultipleRegisters(c.ctx, def.Address, registerCount(def.DataType), raw)
		return werr
	})
	if err != nil {
		return fmt.Errorf("write register %q: %w", name, err)
	}
	return nil
}

// Close closes the underlying handler.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		_ = c.handler.Close()
	}
}

func isConnError(err error) bool {
	if err == nil {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection refused")
}
