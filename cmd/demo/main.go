// Command demo exercises fatpecs end to end: it spawns a handful of
// entities, runs a movement system through the scheduler for a few
// ticks, then round-trips the registry through a snapshot.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log"

	"go.uber.org/zap"

	"fatpecs"
	"fatpecs/scheduler"
	"fatpecs/snapshot"
	"fatpecs/storage"
)

type Position struct{ X, Y float64 }
type Velocity struct{ DX, DY float64 }
type Health struct{ Current, Max int32 }

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	reg := fatpecs.New(fatpecs.DefaultConfig(), logger)

	for i := 0; i < 5; i++ {
		e, err := reg.Create()
		if err != nil {
			logger.Fatal("create entity", zap.Error(err))
		}
		_ = fatpecs.Add(reg, e, Position{X: float64(i), Y: 0})
		_ = fatpecs.Add(reg, e, Velocity{DX: 1, DY: 0.5})
		_ = fatpecs.Add(reg, e, Health{Current: 100, Max: 100})
	}

	sched := scheduler.New()
	posMask := maskOf[Position]()
	velMask := maskOf[Velocity]()

	err = sched.Register("movement", func(r *fatpecs.Registry, dt float64) error {
		view := fatpecs.NewView2[Position, Velocity](r)
		view.Each(func(_ storage.Entity, pos *Position, vel *Velocity) {
			pos.X += vel.DX * dt
			pos.Y += vel.DY * dt
		})
		return nil
	}, velMask, posMask)
	if err != nil {
		logger.Fatal("register movement system", zap.Error(err))
	}

	for tick := 0; tick < 3; tick++ {
		if err := sched.Run(context.Background(), reg, 1.0/60.0); err != nil {
			logger.Fatal("scheduler run", zap.Error(err))
		}
	}

	var buf bytes.Buffer
	w := snapshot.NewWriter()
	snapshot.Register(w, snapshot.NewComponentCodec(encodePosition, decodePosition))
	snapshot.Register(w, snapshot.NewComponentCodec(encodeVelocity, decodeVelocity))
	snapshot.Register(w, snapshot.NewComponentCodec(encodeHealth, decodeHealth))
	if err := w.Write(&buf, reg); err != nil {
		logger.Fatal("write snapshot", zap.Error(err))
	}

	restored := fatpecs.New(fatpecs.DefaultConfig(), logger)
	l := snapshot.NewLoader()
	snapshot.RegisterLoader(l, snapshot.NewComponentCodec(encodePosition, decodePosition))
	snapshot.RegisterLoader(l, snapshot.NewComponentCodec(encodeVelocity, decodeVelocity))
	snapshot.RegisterLoader(l, snapshot.NewComponentCodec(encodeHealth, decodeHealth))
	if err := l.Load(&buf, restored); err != nil {
		logger.Fatal("load snapshot", zap.Error(err))
	}

	logger.Info("demo complete",
		zap.Int("original_entities", reg.EntityCount()),
		zap.Int("restored_entities", restored.EntityCount()),
	)
}

func maskOf[T any]() storage.ComponentMask {
	var m storage.ComponentMask
	m.Set(storage.TypeIDFor[T]())
	return m
}

func encodePosition(w io.Writer, v *Position) error {
	return binary.Write(w, binary.LittleEndian, *v)
}
func decodePosition(r io.Reader) (Position, error) {
	var v Position
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func encodeVelocity(w io.Writer, v *Velocity) error {
	return binary.Write(w, binary.LittleEndian, *v)
}
func decodeVelocity(r io.Reader) (Velocity, error) {
	var v Velocity
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func encodeHealth(w io.Writer, v *Health) error {
	return binary.Write(w, binary.LittleEndian, *v)
}
func decodeHealth(r io.Reader) (Health, error) {
	var v Health
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
