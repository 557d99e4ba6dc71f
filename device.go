// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// Device is the resource-creation collaborator of the graph compiler.
// Any hal.Device satisfies it.
type Device interface {
	pipeline.Device

	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error)
	DestroyTextureView(view hal.TextureView)
	CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error)
	DestroySampler(sampler hal.Sampler)
}

var _ Device = hal.Device(nil)

// DeviceFromProvider extracts the HAL device from a host application's
// device provider (for example a gogpu.App). The provider must implement
// HalDevice() any returning a hal.Device.
func DeviceFromProvider(provider gpucontext.DeviceProvider) (Device, error) {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoHALDevice
	}
	return device, nil
}

// SurfaceColorFormat returns the color format matching the provider's
// surface, for use as the ScreenOutput format.
func SurfaceColorFormat(provider gpucontext.DeviceProvider) (ColorFormat, error) {
	return ColorFormatFromTexture(provider.SurfaceFormat())
}
