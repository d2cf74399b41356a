package browser

// nativeSetterScript writes through the element prototype's value setter so
// React/Vue style controlled inputs see the change, then fires the events
// those frameworks listen to.
const nativeSetterScript = `(el, value) => {
	const proto = el instanceof HTMLTextAreaElement
		? window.HTMLTextAreaElement.prototype
		: el instanceof HTMLSelectElement
			? window.HTMLSelectElement.prototype
			: window.HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) {
		desc.set.call(el, value);
	} else {
		el.value = value;
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	el.dispatchEvent(new Event('blur', { bubbles: true }));
	return el.value;
}`

const readValueScript = `(el) => {
	const type = (el.getAttribute('type') || '').toLowerCase();
	if (type === 'checkbox' || type === 'radio') return String(el.checked);
	if (type === 'file') return String(el.files ? el.files.length : 0);
	if ('value' in el) return String(el.value);
	return el.textContent || '';
}`

const forceCheckScript = `(el) => {
	el.checked = true;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return el.checked;
}`

const scrollIntoViewScript = `(el) => { el.scrollIntoView({ behavior: 'instant', block: 'center' }); }`
