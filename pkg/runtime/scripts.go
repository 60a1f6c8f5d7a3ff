package runtime

// Scripted walkthrough content for the deployment demos. The text is
// shown to the user step by step before the real AWS calls happen.

var codeAgentSource = []string{
	"# main.py",
	"from bedrock_agentcore.runtime import BedrockAgentCoreApp",
	"from strands import Agent",
	"",
	"app = BedrockAgentCoreApp()",
	"agent = Agent()",
	"",
	"@app.entrypoint",
	"def invoke(payload):",
	"    prompt = payload.get(\"prompt\", \"\")",
	"    result = agent(prompt)",
	"    return {\"result\": result.message}",
	"",
	"if __name__ == \"__main__\":",
	"    app.run()",
}

var codeRequirements = []string{
	"# requirements.txt",
	"bedrock-agentcore",
	"strands-agents",
}

var executionRolePolicy = []string{
	"The execution role needs permission to call the model and write logs:",
	"",
	"{",
	"  \"Version\": \"2012-10-17\",",
	"  \"Statement\": [",
	"    {\"Effect\": \"Allow\", \"Action\": [\"bedrock:InvokeModel\", \"bedrock:InvokeModelWithResponseStream\"], \"Resource\": \"*\"},",
	"    {\"Effect\": \"Allow\", \"Action\": [\"logs:CreateLogGroup\", \"logs:CreateLogStream\", \"logs:PutLogEvents\"], \"Resource\": \"*\"}",
	"  ]",
	"}",
	"",
	"Its trust policy must allow bedrock-agentcore.amazonaws.com to assume it.",
}

var containerAgentSource = []string{
	"# main.py (container entrypoint)",
	"from bedrock_agentcore.runtime import BedrockAgentCoreApp",
	"from strands import Agent",
	"",
	"app = BedrockAgentCoreApp()",
	"agent = Agent()",
	"",
	"@app.entrypoint",
	"def invoke(payload):",
	"    prompt = payload.get(\"input\", {}).get(\"prompt\", \"\")",
	"    result = agent(prompt)",
	"    return {\"output\": result.message}",
	"",
	"app.run()",
}

var containerDockerfile = []string{
	"# Dockerfile",
	"FROM public.ecr.aws/docker/library/python:3.13-slim",
	"WORKDIR /app",
	"COPY requirements.txt .",
	"RUN pip install --no-cache-dir -r requirements.txt",
	"COPY main.py .",
	"EXPOSE 8080",
	"CMD [\"python\", \"main.py\"]",
}

// containerPushCommands shows how the image reaches ECR. The image URI
// is appended by the demo with the caller's account and region.
var containerPushCommands = []string{
	"aws ecr get-login-password | docker login --username AWS --password-stdin <registry>",
	"docker build --platform linux/arm64 -t <image-uri> .",
	"docker push <image-uri>",
}
