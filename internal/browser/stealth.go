package browser

// stealthScripts are injected into every page before navigation as a
// flat chromedp.Run action list. getImageData is deliberately left unpatched: it would break
// legitimate canvas use (games, editors), and fingerprinting scripts
// overwhelmingly read back via toDataURL/toBlob instead.
var stealthScripts = []string{
	`Object.defineProperty(navigator, 'webdriver', { get: () => false });`,
	`window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };`,
	`Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });`,
	`Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });`,
	`(function() {
		if (typeof WebGLRenderingContext === 'undefined') return;
		const patch = (proto) => {
			const original = proto.getParameter;
			proto.getParameter = function(parameter) {
				if (parameter === 37445) return 'Intel Inc.';
				if (parameter === 37446) return 'Intel Iris OpenGL Engine';
				return original.call(this, parameter);
			};
		};
		patch(WebGLRenderingContext.prototype);
		if (typeof WebGL2RenderingContext !== 'undefined') {
			patch(WebGL2RenderingContext.prototype);
		}
	})();`,
	`(function() {
		const noiseSeed = Math.floor(Math.random() * 1000);
		function seededRandom(seed) {
			const x = Math.sin(seed) * 10000;
			return x - Math.floor(x);
		}
		function addNoise(data, seed) {
			for (let i = 0; i < data.length; i += 4) {
				for (let c = 0; c < 3; c++) {
					const noise = Math.floor(seededRandom(seed + i + c) * 3) - 1;
					data[i + c] = Math.max(0, Math.min(255, data[i + c] + noise));
				}
			}
		}
		function noisyCopy(canvas) {
			const ctx = canvas.getContext('2d');
			if (!ctx || canvas.width <= 0 || canvas.height <= 0) return null;
			const tmp = document.createElement('canvas');
			tmp.width = canvas.width;
			tmp.height = canvas.height;
			const tctx = tmp.getContext('2d');
			tctx.drawImage(canvas, 0, 0);
			const imageData = tctx.getImageData(0, 0, canvas.width, canvas.height);
			addNoise(imageData.data, noiseSeed);
			tctx.putImageData(imageData, 0, 0);
			return tmp;
		}
		const origToDataURL = HTMLCanvasElement.prototype.toDataURL;
		HTMLCanvasElement.prototype.toDataURL = function(type, quality) {
			if (!type || type === 'image/png' || type === 'image/jpeg') {
				try {
					const tmp = noisyCopy(this);
					if (tmp) return origToDataURL.call(tmp, type, quality);
				} catch (e) {}
			}
			return origToDataURL.call(this, type, quality);
		};
		const origToBlob = HTMLCanvasElement.prototype.toBlob;
		HTMLCanvasElement.prototype.toBlob = function(callback, type, quality) {
			if (!type || type === 'image/png' || type === 'image/jpeg') {
				try {
					const tmp = noisyCopy(this);
					if (tmp) { return origToBlob.call(tmp, callback, type, quality); }
				} catch (e) {}
			}
			return origToBlob.call(this, callback, type, quality);
		};
	})();`,
}

// StealthScripts returns the basic fingerprint-evasion scripts applied
// to every page regardless of EnhancedStealth.
func StealthScripts() []string {
	out := make([]string, len(stealthScripts))
	copy(out, stealthScripts)
	return out
}
