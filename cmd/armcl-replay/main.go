// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command armcl-replay drives the contact-localisation filter over a
// recorded bag of observation tuples and prints the ranked contacts at
// each step, the way a bag-file replay collaborator would (§1's "bag-file
// replay" external collaborator).
package main

import (
	"context"
	"flag"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cxdcxd/armcl/armcfg"
	"github.com/cxdcxd/armcl/filter"
	"github.com/cxdcxd/armcl/meshmap"
)

func main() {

	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.Pfred("ERROR: %v\n", err)
		}
	}()

	configPath := flag.String("config", "", "path to the YAML configuration file")
	bagPath := flag.String("bag", "", "path to the JSON bag of observation tuples")
	loadTimeout := flag.Duration("load-timeout", 5*time.Second, "mesh-map load deadline")
	flag.Parse()

	if *configPath == "" || *bagPath == "" {
		chk.Panic("Please provide -config and -bag. Ex.: armcl-replay -config arm.yaml -bag session.json\n")
	}

	io.PfWhite("\narmcl-replay -- contact-localisation particle filter replay\n\n")

	cfg, err := armcfg.Load(*configPath)
	if err != nil {
		chk.Panic("cannot load configuration: %v", err)
	}

	tuples, err := loadBag(*bagPath)
	if err != nil {
		chk.Panic("cannot load bag: %v", err)
	}

	provider := meshmap.NewProvider()
	go func() {
		tree, err := meshmap.Load(cfg.MeshPath, cfg.Meshes)
		if err != nil {
			provider.Fail(err)
			return
		}
		provider.Publish(tree)
	}()

	kin := &bagKinematics{}
	driver := filter.NewDriver(cfg, provider, kin)
	if err := driver.Init(context.Background(), *loadTimeout); err != nil {
		chk.Panic("cannot initialise filter: %v", err)
	}

	for i, t := range tuples {
		kin.current = t.LocalTransforms
		contacts, err := driver.Step(t.toObservation())
		if err != nil {
			chk.Panic("step %d (t=%v) failed: %v", i, t.Timestamp, err)
		}
		if contacts == nil {
			io.Pfyel("step %d (t=%v): dropped (stale or no update)\n", i, t.Timestamp)
			continue
		}
		io.Pf("step %d (t=%v): %d contact(s)\n", i, t.Timestamp, len(contacts))
		for rank, c := range contacts {
			io.Pf("  #%d  frame=%s  score=%.6f\n", rank+1, c.Sample.State.MapID, c.Score)
		}
	}

	io.Pfgreen("\nreplay complete: %d steps processed, %d dropped as stale\n", driver.StepCount(), driver.StaleDropped())
}
