package frame

// Pixel-format conversion between YUV420SP and RGBA using integer
// arithmetic. The YUV420SP layout is a full-resolution luminance plane
// followed by an interleaved, 2x2-subsampled chroma plane. By default the
// chroma pairs are stored V-then-U (NV21); a frame built with the flipped
// flag stores them U-then-V (NV12).

// 2^18 - 1, clamps channel values before they are normalized to 8 bits.
const maxChannelValue = 262143

// chromaStride returns the byte stride of one interleaved chroma row.
func chromaStride(width int) int {
	return 2 * ((width + 1) / 2)
}

// YUVSize returns the number of bytes required to hold YUV420SP data for an
// image of the given dimensions.
func YUVSize(width, height int) int {
	return width*height + chromaStride(width)*((height+1)/2)
}

func yuvToPixel(ny, nu, nv int) (r, g, b uint8) {
	ny -= 16
	nu -= 128
	nv -= 128
	if ny < 0 {
		ny = 0
	}

	// Integer equivalent of:
	//   r = 1.164*y + 1.596*v
	//   g = 1.164*y - 0.813*v - 0.391*u
	//   b = 1.164*y + 2.018*u
	nr := 1192*ny + 1634*nv
	ng := 1192*ny - 833*nv - 400*nu
	nb := 1192*ny + 2066*nu

	nr = min(maxChannelValue, max(0, nr))
	ng = min(maxChannelValue, max(0, ng))
	nb = min(maxChannelValue, max(0, nb))

	return uint8(nr >> 10), uint8(ng >> 10), uint8(nb >> 10)
}

// convertYUVToRGBA expands YUV420SP data into a row-major RGBA buffer.
// Buffer sizes are a caller precondition; no checking is performed.
func convertYUVToRGBA(yuv []byte, width, height int, uvFlipped bool) []byte {
	rgba := make([]byte, width*height*4)
	cs := chromaStride(width)
	chromaBase := width * height

	out := 0
	for y := 0; y < height; y++ {
		uvRow := chromaBase + (y/2)*cs
		for x := 0; x < width; x++ {
			ny := int(yuv[y*width+x])
			off := uvRow + 2*(x/2)
			nv := int(yuv[off])
			nu := int(yuv[off+1])
			if uvFlipped {
				nu, nv = nv, nu
			}

			r, g, b := yuvToPixel(ny, nu, nv)
			rgba[out] = r
			rgba[out+1] = g
			rgba[out+2] = b
			rgba[out+3] = 0xff
			out += 4
		}
	}

	return rgba
}

// convertRGBAToYUV packs row-major RGBA data into YUV420SP. The chroma
// sample for each 2x2 block is taken from its top-left pixel. Output chroma
// order is always V-then-U (never flipped).
func convertRGBAToYUV(rgba []byte, width, height int) []byte {
	yuv := make([]byte, YUVSize(width, height))
	cs := chromaStride(width)
	chromaBase := width * height

	in := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := int(rgba[in])
			g := int(rgba[in+1])
			b := int(rgba[in+2])
			in += 4

			yuv[y*width+x] = uint8(((66*r + 129*g + 25*b + 128) >> 8) + 16)

			if y%2 == 0 && x%2 == 0 {
				off := chromaBase + (y/2)*cs + 2*(x/2)
				yuv[off] = uint8(((112*r - 94*g - 18*b + 128) >> 8) + 128)    // V
				yuv[off+1] = uint8(((-38*r - 74*g + 112*b + 128) >> 8) + 128) // U
			}
		}
	}

	return yuv
}

// convertRGBAToLuma computes just the luminance plane, without touching
// chroma. Used when only the Y channel is needed and no YUV data is cached.
func convertRGBAToLuma(rgba []byte, width, height int) []byte {
	luma := make([]byte, width*height)

	in := 0
	for i := range luma {
		r := int(rgba[in])
		g := int(rgba[in+1])
		b := int(rgba[in+2])
		in += 4
		luma[i] = uint8(((66*r + 129*g + 25*b + 128) >> 8) + 16)
	}

	return luma
}
