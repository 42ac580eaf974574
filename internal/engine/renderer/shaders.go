package renderer

const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uViewProj;
uniform vec3 uOrigin;

out vec3 vNormal;

void main() {
	vNormal = aNormal;
	gl_Position = uViewProj * vec4(aPos + uOrigin, 1.0);
}
`

const instanceVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in mat4 aInstance;

uniform mat4 uViewProj;

out vec3 vNormal;

void main() {
	vNormal = mat3(aInstance) * aNormal;
	gl_Position = uViewProj * aInstance * vec4(aPos, 1.0);
}
`

// Blades are single quads seen from both sides, so lighting uses |N.L|.
const litFragmentShader = `
#version 410 core

in vec3 vNormal;

uniform vec3 uColor;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
	float diffuse = abs(dot(normalize(vNormal), normalize(uLightDir)));
	FragColor = vec4(uColor * (0.35 + 0.65 * diffuse), 1.0);
}
`
