package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// extraEvasions patches the properties that go-rod/stealth leaves alone and that
// common consent and bot-check scripts inspect.
const extraEvasions = `
(function() {
    'use strict';

    try {
        Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });
        delete Object.getPrototypeOf(navigator).webdriver;
    } catch (e) {}

    Object.defineProperty(navigator, 'languages', {
        get: () => Object.freeze(['en-US', 'en', 'da']),
        configurable: true
    });

    if (!navigator.hardwareConcurrency) {
        Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 4, configurable: true });
    }
    if (!navigator.deviceMemory) {
        Object.defineProperty(navigator, 'deviceMemory', { get: () => 8, configurable: true });
    }

    try {
        const getParameter = WebGLRenderingContext.prototype.getParameter;
        WebGLRenderingContext.prototype.getParameter = new Proxy(getParameter, {
            apply(target, ctx, args) {
                if (args[0] === 37445) return 'Intel Inc.';
                if (args[0] === 37446) return 'Intel Iris OpenGL Engine';
                return Reflect.apply(target, ctx, args);
            }
        });
    } catch (e) {}
})();
`

// NewStealthPage opens a blank page with the go-rod/stealth evasions and
// extraEvasions installed before any document script runs.
func NewStealthPage(b *rod.Browser) (*rod.Page, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, err
	}

	if _, err := page.EvalOnNewDocument(extraEvasions); err != nil {
		_ = page.Close()
		return nil, err
	}

	return page, nil
}
